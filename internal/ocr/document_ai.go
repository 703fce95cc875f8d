package ocr

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// DocumentAIConfig identifies the OCR processor to call.
type DocumentAIConfig struct {
	ProjectID        string
	Location         string
	ProcessorID      string
	ProcessorVersion string
	Timeout          time.Duration
}

// ProcessorName constructs the full processor name for Document AI API.
func (c DocumentAIConfig) ProcessorName() string {
	if c.ProcessorVersion != "" {
		return fmt.Sprintf("%s/processorVersions/%s", c.processorResource(), c.ProcessorVersion)
	}
	return c.processorResource()
}

func (c DocumentAIConfig) processorResource() string {
	return fmt.Sprintf("projects/%s/locations/%s/processors/%s",
		c.ProjectID, c.Location, c.ProcessorID)
}

// DocumentAIEngine recognizes pages with a Document AI OCR processor.
type DocumentAIEngine struct {
	client *documentai.DocumentProcessorClient
	config DocumentAIConfig
}

// NewDocumentAIEngine creates a processor client with credentials from environment.
func NewDocumentAIEngine(ctx context.Context, config DocumentAIConfig) (*DocumentAIEngine, error) {
	const op = "NewDocumentAIEngine"

	if config.ProjectID == "" {
		return nil, WrapOCRError(op, ErrInvalidConfiguration, "GOOGLE_CLOUD_PROJECT is required")
	}
	if config.ProcessorID == "" {
		return nil, WrapOCRError(op, ErrInvalidConfiguration, "DOCUMENT_AI_PROCESSOR_ID is required")
	}
	if config.Location == "" {
		config.Location = "us"
	}

	var clientOptions []option.ClientOption

	// Regional endpoint unless the processor lives in the default location
	if config.Location != "us" {
		endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", config.Location)
		clientOptions = append(clientOptions, option.WithEndpoint(endpoint))
	}

	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		clientOptions = append(clientOptions, option.WithCredentialsJSON([]byte(credJSON)))
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		clientOptions = append(clientOptions, option.WithCredentialsFile(credFile))
	}

	client, err := documentai.NewDocumentProcessorClient(ctx, clientOptions...)
	if err != nil {
		if len(clientOptions) == 0 {
			return nil, WrapOCRError(op, ErrMissingCredentials, "no credentials found in environment")
		}
		return nil, WrapOCRError(op, err, fmt.Sprintf("failed to create Document AI client for location: %s", config.Location))
	}

	return NewDocumentAIEngineWithClient(config, client), nil
}

// NewDocumentAIEngineWithClient creates an engine with explicit config and client (for testing).
func NewDocumentAIEngineWithClient(config DocumentAIConfig, client *documentai.DocumentProcessorClient) *DocumentAIEngine {
	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}
	return &DocumentAIEngine{client: client, config: config}
}

func (p *DocumentAIEngine) Name() string { return "documentai" }

// Version looks the processor up, which checks the credentials and that the
// processor exists and is enabled. It returns the processor version pages
// are sent to.
func (p *DocumentAIEngine) Version(ctx context.Context) (string, error) {
	const op = "Version"

	if p.client == nil {
		return "", WrapOCRError(op, ErrMissingCredentials, "Document AI client not initialized")
	}

	getCtx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	proc, err := p.client.GetProcessor(getCtx, &documentaipb.GetProcessorRequest{Name: p.config.processorResource()})
	if err != nil {
		return "", p.handleProcessingError(op, err)
	}
	if state := proc.GetState(); state != documentaipb.Processor_ENABLED {
		return "", WrapOCRError(op, ErrInvalidConfiguration, fmt.Sprintf("processor %s is %s", p.config.ProcessorID, state))
	}

	switch {
	case p.config.ProcessorVersion != "":
		return p.config.ProcessorName(), nil
	case proc.GetDefaultProcessorVersion() != "":
		return proc.GetDefaultProcessorVersion(), nil
	}
	return p.config.ProcessorName(), nil
}

// Recognize sends the page PNG as a raw document and returns its text.
func (p *DocumentAIEngine) Recognize(ctx context.Context, page Page) (string, error) {
	const op = "Recognize"

	if len(page.PNG) > MaxImageSizeBytes {
		return "", WrapOCRError(op, ErrImageTooLarge, fmt.Sprintf("page %d: %d bytes", page.Number, len(page.PNG)))
	}

	processCtx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	req := &documentaipb.ProcessRequest{
		Name: p.config.ProcessorName(),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  page.PNG,
				MimeType: "image/png",
			},
		},
	}

	resp, err := p.client.ProcessDocument(processCtx, req)
	if err != nil {
		return "", p.handleProcessingError(op, err)
	}
	if resp.Document == nil {
		return "", WrapOCRError(op, ErrOCRFailed, "no document in response")
	}
	return resp.Document.Text, nil
}

// handleProcessingError converts Document AI errors to OCR errors.
func (p *DocumentAIEngine) handleProcessingError(op string, err error) error {
	errStr := err.Error()
	code := status.Code(err)

	switch {
	case code == codes.Unauthenticated:
		return WrapOCRError(op, ErrMissingCredentials, "Document AI rejected the credentials")
	case code == codes.PermissionDenied || strings.Contains(errStr, "PERMISSION_DENIED"):
		return WrapOCRError(op, ErrMissingCredentials, "insufficient permissions for Document AI")
	case code == codes.NotFound || strings.Contains(errStr, "NOT_FOUND"):
		return WrapOCRError(op, ErrInvalidConfiguration, fmt.Sprintf("processor not found: %s", p.config.ProcessorID))
	case strings.Contains(errStr, "DeadlineExceeded") || strings.Contains(errStr, "context deadline exceeded"):
		return WrapOCRError(op, context.DeadlineExceeded, "processing timeout")
	case strings.Contains(errStr, "Canceled") || strings.Contains(errStr, "context canceled"):
		return WrapOCRError(op, ErrContextCanceled, "processing was canceled")
	default:
		return WrapOCRError(op, ErrOCRFailed, fmt.Sprintf("Document AI error: %v", err))
	}
}

// Close closes the underlying Document AI client.
func (p *DocumentAIEngine) Close() error {
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}
