package utils

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
)

// RekognitionOCR reads label text with Rekognition DetectText.
type RekognitionOCR struct {
	client *rekognition.Client
}

func NewRekognitionOCR(ctx context.Context, region string) (*RekognitionOCR, error) {
	if region == "" {
		return nil, fmt.Errorf("AWS_REGION not set")
	}
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config for Rekognition: %w", err)
	}
	return &RekognitionOCR{client: rekognition.NewFromConfig(cfg)}, nil
}

// ExtractText returns detected LINE texts joined by newlines.
func (r *RekognitionOCR) ExtractText(ctx context.Context, img Image) (string, error) {
	out, err := r.client.DetectText(ctx, &rekognition.DetectTextInput{
		Image: &types.Image{Bytes: img.Data},
		Filters: &types.DetectTextFilters{
			WordFilter: &types.DetectionFilter{MinConfidence: aws.Float32(70)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("rekognition detect text: %w", err)
	}

	var lines []string
	for _, d := range out.TextDetections {
		if d.Type == types.TextTypesLine && d.DetectedText != nil {
			lines = append(lines, *d.DetectedText)
		}
	}
	return strings.Join(lines, "\n"), nil
}
