package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// MaxImageSizeBytes is the largest page image sent to a cloud engine (20MB).
const MaxImageSizeBytes = 20 * 1024 * 1024

// VisionEngine recognizes pages with Google Cloud Vision.
type VisionEngine struct {
	client    *vision.ImageAnnotatorClient
	languages []string
}

// NewVisionEngine creates a Vision client with credentials from environment.
// It expects either GOOGLE_APPLICATION_CREDENTIALS path or GOOGLE_CREDENTIALS JSON in env.
func NewVisionEngine(ctx context.Context, languages []string) (*VisionEngine, error) {
	const op = "NewVisionEngine"

	var client *vision.ImageAnnotatorClient
	var err error

	// Check for inline credentials first
	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
		if err != nil {
			return nil, WrapOCRError(op, err, "failed to create client with GOOGLE_CREDENTIALS")
		}
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsFile(credFile))
		if err != nil {
			return nil, WrapOCRError(op, err, "failed to create client with GOOGLE_APPLICATION_CREDENTIALS")
		}
	} else {
		// Try default credentials as fallback
		client, err = vision.NewImageAnnotatorClient(ctx)
		if err != nil {
			return nil, WrapOCRError(op, ErrMissingCredentials, "no credentials found in environment")
		}
	}

	return NewVisionEngineWithClient(client, languages), nil
}

// NewVisionEngineWithClient wraps an existing client (for testing).
func NewVisionEngineWithClient(client *vision.ImageAnnotatorClient, languages []string) *VisionEngine {
	return &VisionEngine{client: client, languages: visionLanguageHints(languages)}
}

func (g *VisionEngine) Name() string { return "vision" }

// Version reports the API surface in use. Vision has no version endpoint, so
// a one pixel image is annotated to check that the credentials are accepted.
func (g *VisionEngine) Version(ctx context.Context) (string, error) {
	const op = "Version"

	if g.client == nil {
		return "", WrapOCRError(op, ErrMissingCredentials, "vision client not initialized")
	}

	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image:    &visionpb.Image{Content: blankPNG()},
				Features: []*visionpb.Feature{{Type: visionpb.Feature_TEXT_DETECTION, MaxResults: 1}},
			},
		},
	}

	resp, err := g.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		switch status.Code(err) {
		case codes.Unauthenticated, codes.PermissionDenied:
			return "", WrapOCRError(op, ErrMissingCredentials, fmt.Sprintf("Vision API rejected the credentials: %v", err))
		}
		return "", WrapOCRError(op, ErrOCRFailed, fmt.Sprintf("Vision API call failed: %v", err))
	}
	if _, err := visionText(resp, 0); err != nil {
		return "", err
	}
	return "Cloud Vision API v1", nil
}

// blankPNG encodes a single white pixel.
func blankPNG() []byte {
	img := image.NewGray(image.Rect(0, 0, 1, 1))
	img.SetGray(0, 0, color.Gray{Y: 0xff})

	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

// Recognize runs DOCUMENT_TEXT_DETECTION on the page image.
func (g *VisionEngine) Recognize(ctx context.Context, page Page) (string, error) {
	const op = "Recognize"

	if len(page.PNG) > MaxImageSizeBytes {
		return "", WrapOCRError(op, ErrImageTooLarge, fmt.Sprintf("page %d: %d bytes", page.Number, len(page.PNG)))
	}

	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: page.PNG},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
				},
				ImageContext: &visionpb.ImageContext{LanguageHints: g.languages},
			},
		},
	}

	resp, err := g.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return "", WrapOCRError(op, ErrOCRFailed, fmt.Sprintf("Vision API call failed: %v", err))
	}
	return visionText(resp, page.Number)
}

// visionText pulls the full text annotation out of a single-image response.
func visionText(resp *visionpb.BatchAnnotateImagesResponse, pageNr int) (string, error) {
	const op = "Recognize"

	if resp == nil || len(resp.Responses) == 0 {
		return "", WrapOCRError(op, ErrOCRFailed, "no response from Vision API")
	}

	imgResp := resp.Responses[0]
	if imgResp.Error != nil {
		return "", WrapOCRError(op, ErrOCRFailed, fmt.Sprintf("page %d: Vision API error: %s", pageNr, imgResp.Error.Message))
	}
	if imgResp.FullTextAnnotation == nil {
		return "", nil
	}
	return imgResp.FullTextAnnotation.Text, nil
}

// Close closes the underlying Vision client.
func (g *VisionEngine) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

// tesseractToISO maps the Tesseract language codes we expect in practice to
// the BCP-47 hints Vision accepts. Unknown codes are dropped.
var tesseractToISO = map[string]string{
	"eng": "en",
	"deu": "de",
	"fra": "fr",
	"spa": "es",
	"ita": "it",
	"nld": "nl",
	"por": "pt",
}

func visionLanguageHints(languages []string) []string {
	var hints []string
	for _, l := range languages {
		if iso, ok := tesseractToISO[l]; ok {
			hints = append(hints, iso)
		} else if len(l) == 2 {
			hints = append(hints, l)
		}
	}
	return hints
}
