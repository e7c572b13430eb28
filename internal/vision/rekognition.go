package vision

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
)

// RekognitionDetector detects faces with AWS Rekognition.
type RekognitionDetector struct {
	client *rekognition.Client
}

// NewRekognitionDetector creates a Rekognition detector using the default AWS
// credential chain.
func NewRekognitionDetector(ctx context.Context, region string) (*RekognitionDetector, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &RekognitionDetector{client: rekognition.NewFromConfig(awsCfg)}, nil
}

func (d *RekognitionDetector) Name() string {
	return "rekognition"
}

// DetectFaces runs face detection. Rekognition reports relative boxes, so the
// image is decoded once for its dimensions.
func (d *RekognitionDetector) DetectFaces(ctx context.Context, imageData []byte) ([]Face, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	out, err := d.client.DetectFaces(ctx, &rekognition.DetectFacesInput{
		Image:      &types.Image{Bytes: imageData},
		Attributes: []types.Attribute{types.AttributeDefault},
	})
	if err != nil {
		return nil, fmt.Errorf("rekognition API error: %w", err)
	}

	faces := make([]Face, 0, len(out.FaceDetails))
	for _, detail := range out.FaceDetails {
		f := Face{}
		if detail.Confidence != nil {
			f.Confidence = float64(*detail.Confidence) / 100.0
		}
		if bb := detail.BoundingBox; bb != nil {
			f.Bounds = BoundingBox{
				X:      int(deref(bb.Left) * float32(cfg.Width)),
				Y:      int(deref(bb.Top) * float32(cfg.Height)),
				Width:  int(deref(bb.Width) * float32(cfg.Width)),
				Height: int(deref(bb.Height) * float32(cfg.Height)),
			}
		}
		faces = append(faces, f)
	}
	return faces, nil
}

func deref(f *float32) float32 {
	if f == nil {
		return 0
	}
	return *f
}

// Matcher identifies employees by face through a Rekognition collection.
// It is the MATCH_PROVIDER=rekognition alternative to the local encoding
// index.
type Matcher struct {
	client       *rekognition.Client
	collectionID string
	threshold    float32
}

// NewMatcher creates a collection-backed matcher. The collection is created
// on first use when it does not exist yet.
func NewMatcher(ctx context.Context, region, collectionID string) (*Matcher, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	m := &Matcher{
		client:       rekognition.NewFromConfig(awsCfg),
		collectionID: collectionID,
		threshold:    90,
	}
	if err := m.ensureCollection(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Matcher) ensureCollection(ctx context.Context) error {
	_, err := m.client.CreateCollection(ctx, &rekognition.CreateCollectionInput{
		CollectionId: aws.String(m.collectionID),
	})
	if err != nil {
		var exists *types.ResourceAlreadyExistsException
		if errors.As(err, &exists) {
			return nil
		}
		return fmt.Errorf("creating collection %s: %w", m.collectionID, err)
	}
	return nil
}

// IndexFace registers an employee's face in the collection.
func (m *Matcher) IndexFace(ctx context.Context, employeeID string, imageData []byte) error {
	out, err := m.client.IndexFaces(ctx, &rekognition.IndexFacesInput{
		CollectionId:    aws.String(m.collectionID),
		Image:           &types.Image{Bytes: imageData},
		ExternalImageId: aws.String(employeeID),
		MaxFaces:        aws.Int32(1),
		QualityFilter:   types.QualityFilterAuto,
	})
	if err != nil {
		return fmt.Errorf("indexing face for %s: %w", employeeID, err)
	}
	if len(out.FaceRecords) == 0 {
		return fmt.Errorf("no indexable face found for %s", employeeID)
	}
	return nil
}

// SearchFace finds the best matching employee for a probe image. Returns an
// empty ID when no face in the collection passes the threshold.
func (m *Matcher) SearchFace(ctx context.Context, imageData []byte) (employeeID string, confidence float64, err error) {
	out, err := m.client.SearchFacesByImage(ctx, &rekognition.SearchFacesByImageInput{
		CollectionId:       aws.String(m.collectionID),
		Image:              &types.Image{Bytes: imageData},
		FaceMatchThreshold: aws.Float32(m.threshold),
		MaxFaces:           aws.Int32(1),
	})
	if err != nil {
		return "", 0, fmt.Errorf("searching collection: %w", err)
	}

	if len(out.FaceMatches) == 0 {
		return "", 0, nil
	}
	match := out.FaceMatches[0]
	if match.Face == nil || match.Face.ExternalImageId == nil {
		return "", 0, nil
	}
	conf := float64(0)
	if match.Similarity != nil {
		conf = float64(*match.Similarity) / 100.0
	}
	return *match.Face.ExternalImageId, conf, nil
}

// RemoveFace deletes all collection faces indexed for an employee.
func (m *Matcher) RemoveFace(ctx context.Context, employeeID string) error {
	var faceIDs []string
	var nextToken *string
	for {
		out, err := m.client.ListFaces(ctx, &rekognition.ListFacesInput{
			CollectionId: aws.String(m.collectionID),
			NextToken:    nextToken,
		})
		if err != nil {
			return fmt.Errorf("listing collection faces: %w", err)
		}
		for _, face := range out.Faces {
			if face.ExternalImageId != nil && *face.ExternalImageId == employeeID && face.FaceId != nil {
				faceIDs = append(faceIDs, *face.FaceId)
			}
		}
		if out.NextToken == nil {
			break
		}
		nextToken = out.NextToken
	}

	if len(faceIDs) == 0 {
		return nil
	}
	_, err := m.client.DeleteFaces(ctx, &rekognition.DeleteFacesInput{
		CollectionId: aws.String(m.collectionID),
		FaceIds:      faceIDs,
	})
	if err != nil {
		return fmt.Errorf("deleting faces for %s: %w", employeeID, err)
	}
	return nil
}
