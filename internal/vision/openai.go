package vision

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

const chatModel = openai.ChatModelGPT4_1Mini

// OpenAIDetector detects faces with an OpenAI vision model.
type OpenAIDetector struct {
	client *openai.Client
}

// NewOpenAIDetector creates an OpenAI-backed detector.
func NewOpenAIDetector(apiKey string) *OpenAIDetector {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIDetector{client: &client}
}

func (d *OpenAIDetector) Name() string {
	return chatModel
}

// DetectFaces asks the model for face bounding boxes in JSON.
func (d *OpenAIDetector) DetectFaces(ctx context.Context, imageData []byte) ([]Face, error) {
	resized, err := ResizeImage(imageData, 800)
	if err != nil {
		return nil, fmt.Errorf("failed to resize image: %w", err)
	}

	imageURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(resized)

	messages := []openai.ChatCompletionMessageParamUnion{
		{
			OfSystem: &openai.ChatCompletionSystemMessageParam{
				Content: openai.ChatCompletionSystemMessageParamContentUnion{
					OfString: openai.String(faceDetectionPrompt),
				},
			},
		},
		{
			OfUser: &openai.ChatCompletionUserMessageParam{
				Content: openai.ChatCompletionUserMessageParamContentUnion{
					OfArrayOfContentParts: []openai.ChatCompletionContentPartUnionParam{
						openai.TextContentPart("Locate every face in this image."),
						openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
							URL:    imageURL,
							Detail: "low",
						}),
					},
				},
			},
		},
	}

	resp, err := d.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    chatModel,
		Messages: messages,
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
		MaxTokens: openai.Int(500),
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, errors.New("no response from OpenAI")
	}

	content := resp.Choices[0].Message.Content
	var list faceList
	if err := json.Unmarshal([]byte(content), &list); err != nil {
		return nil, fmt.Errorf("failed to parse face JSON: %w (response: %s)", err, content)
	}
	return list.toFaces(), nil
}
