package azure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/w-h-a/medrecord/extractor"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const analyzePath = "/computervision/imageanalysis:analyze?api-version=2023-10-01&features=read"

// azureExtractor submits the full binary image to the Azure AI Vision
// Read API and joins the detected lines of the first text block.
type azureExtractor struct {
	options extractor.Options
	client  *http.Client
}

func (e *azureExtractor) Extract(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}

	var rsp analyzeResult

	if err := e.do(ctx, data, &rsp); err != nil {
		return "", err
	}

	if len(rsp.ReadResult.Blocks) == 0 || len(rsp.ReadResult.Blocks[0].Lines) == 0 {
		return "", extractor.ErrNoTextFound
	}

	lines := make([]string, 0, len(rsp.ReadResult.Blocks[0].Lines))
	for _, l := range rsp.ReadResult.Blocks[0].Lines {
		lines = append(lines, l.Text)
	}

	return strings.Join(lines, "\n"), nil
}

func (e *azureExtractor) do(ctx context.Context, image []byte, rsp any) error {
	u := strings.TrimSuffix(e.options.Location, "/") + analyzePath

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(image))
	if err != nil {
		return err
	}

	request.Header.Set("Content-Type", "application/octet-stream")
	request.Header.Set("Ocp-Apim-Subscription-Key", e.options.ApiKey)

	response, err := e.client.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	payload, err := io.ReadAll(response.Body)
	if err != nil {
		return err
	}

	if response.StatusCode >= 400 {
		var apiErr analyzeError
		if err := json.Unmarshal(payload, &apiErr); err == nil && len(apiErr.Error.Code) > 0 {
			return fmt.Errorf("azure vision %s: %s", apiErr.Error.Code, apiErr.Error.Message)
		}
		return fmt.Errorf("azure vision http %d: %s", response.StatusCode, string(payload))
	}

	if rsp != nil && len(payload) > 0 {
		if err := json.Unmarshal(payload, rsp); err != nil {
			return err
		}
	}

	return nil
}

func NewExtractor(opts ...extractor.Option) extractor.Extractor {
	options := extractor.NewOptions(opts...)

	if len(options.Location) == 0 || len(options.ApiKey) == 0 {
		panic("missing endpoint or api key for azure extractor")
	}

	client := &http.Client{
		Timeout:   30 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	return &azureExtractor{
		options: options,
		client:  client,
	}
}
