package embedproviders

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"

	errors "github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"

	"github.com/doozMen/codesearch-mcp/internal/errs"
)

const (
	externalDimensions     = 384
	healthPollInterval     = 500 * time.Millisecond
	startupTimeout         = 30 * time.Second
	requestTimeout         = 60 * time.Second
)

// ExternalModelConfig configures the subordinate embedding-model process.
type ExternalModelConfig struct {
	// CandidatePaths is an ordered list of executable paths to try.
	// The first one that exists, is executable, and passes verifyDeps
	// is launched.
	CandidatePaths []string
	Args           []string
	Port           int
}

// depCheckTimeout bounds how long verifyDeps waits for a candidate
// binary's --check run before moving on to the next candidate.
const depCheckTimeout = 5 * time.Second

// ExternalModelProvider delegates embedding to a co-resident subordinate
// process over loopback HTTP: POST /embed, GET /health. It launches and
// owns the subprocess's lifecycle.
type ExternalModelProvider struct {
	cfg        ExternalModelConfig
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger

	mu      sync.Mutex
	cmd     *exec.Cmd
	started bool
}

// NewExternalModelProvider constructs a provider bound to cfg. It does
// not launch the subprocess; call Start first.
func NewExternalModelProvider(cfg ExternalModelConfig, logger *zap.Logger) *ExternalModelProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExternalModelProvider{
		cfg:     cfg,
		baseURL: fmt.Sprintf("http://127.0.0.1:%d", cfg.Port),
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger: logger.Named("external-embed"),
	}
}

func (p *ExternalModelProvider) Dimensions() int { return externalDimensions }
func (p *ExternalModelProvider) Name() string    { return "external-model" }

// locateExecutable walks CandidatePaths and returns the first that
// exists, is executable, and passes verifyDeps.
func (p *ExternalModelProvider) locateExecutable(ctx context.Context) (string, error) {
	for _, path := range p.cfg.CandidatePaths {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if info.Mode()&0o111 == 0 {
			continue
		}
		if err := p.verifyDeps(ctx, path); err != nil {
			p.logger.Debug("candidate failed dependency check", zap.String("path", path), zap.Error(err))
			continue
		}
		return path, nil
	}
	return "", errs.New(errs.KindModelUnavailable, "no embedding model executable found in candidate paths")
}

// verifyDeps runs the candidate binary with --check, a convention the
// subordinate embedding-model process is expected to support: it
// resolves its model-file and shared-library dependencies and exits
// zero without binding a port if they are all present. A candidate
// that fails or times out this check is skipped rather than launched.
func (p *ExternalModelProvider) verifyDeps(ctx context.Context, path string) error {
	checkCtx, cancel := context.WithTimeout(ctx, depCheckTimeout)
	defer cancel()
	cmd := exec.CommandContext(checkCtx, path, "--check")
	out, err := cmd.CombinedOutput()
	if err != nil {
		return errs.Wrap(errs.KindModelUnavailable, err, "dependency check failed: "+string(out))
	}
	return nil
}

// Start launches the subordinate process (piping its stdout/stderr to
// the logger) and polls /health at healthPollInterval until ready or
// until startupTimeout elapses.
func (p *ExternalModelProvider) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	bin, err := p.locateExecutable(ctx)
	if err != nil {
		return err
	}

	args := append([]string{}, p.cfg.Args...)
	args = append(args, "--port", strconv.Itoa(p.cfg.Port))
	cmd := exec.CommandContext(ctx, bin, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return errors.Wrap(err, "attach subprocess stdout")
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return errors.Wrap(err, "attach subprocess stderr")
	}
	if err := cmd.Start(); err != nil {
		return errs.Wrap(errs.KindModelUnavailable, err, "launch embedding model subprocess")
	}

	go p.pipeLog(stdout, "stdout")
	go p.pipeLog(stderr, "stderr")

	p.mu.Lock()
	p.cmd = cmd
	p.mu.Unlock()

	if err := p.waitHealthy(ctx); err != nil {
		p.Stop()
		return err
	}

	p.mu.Lock()
	p.started = true
	p.mu.Unlock()
	return nil
}

func (p *ExternalModelProvider) pipeLog(r io.Reader, stream string) {
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			p.logger.Debug("subprocess output", zap.String("stream", stream), zap.ByteString("line", buf[:n]))
		}
		if err != nil {
			return
		}
	}
}

func (p *ExternalModelProvider) waitHealthy(ctx context.Context) error {
	deadline := time.Now().Add(startupTimeout)
	ticker := time.NewTicker(healthPollInterval)
	defer ticker.Stop()
	for {
		if p.checkHealth(ctx) {
			return nil
		}
		if time.Now().After(deadline) {
			return errs.New(errs.KindStartupTimeout, "embedding model subprocess did not become healthy in time")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (p *ExternalModelProvider) checkHealth(ctx context.Context) bool {
	reqCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, p.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Stop terminates the subordinate process, if running.
func (p *ExternalModelProvider) Stop() error {
	p.mu.Lock()
	cmd := p.cmd
	p.started = false
	p.cmd = nil
	p.mu.Unlock()
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	return cmd.Process.Kill()
}

type embedRequest struct {
	Texts []string `json:"texts"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	Dimension  int         `json:"dimension"`
	Count      int         `json:"count"`
}

// EmbedOne embeds a single string via the subprocess.
func (p *ExternalModelProvider) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	if err := validateNonEmpty(text); err != nil {
		return nil, err
	}
	out, err := p.EmbedMany(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EmbedMany embeds a batch via one POST /embed call, capped at
// requestTimeout. The HTTP round trip runs in a goroutine so ctx
// cancellation can abandon it promptly instead of blocking until the
// transport itself times out.
func (p *ExternalModelProvider) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	p.mu.Lock()
	started := p.started
	p.mu.Unlock()
	if !started {
		return nil, errs.New(errs.KindServerUnhealthy, "external embedding model is not running")
	}

	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	body, err := json.Marshal(embedRequest{Texts: texts})
	if err != nil {
		return nil, errors.Wrap(err, "marshal embed request")
	}

	type result struct {
		resp *embedResponse
		err  error
	}
	resultCh := make(chan result, 1)
	go func() {
		resp, err := p.doEmbed(reqCtx, body)
		resultCh <- result{resp, err}
	}()

	select {
	case <-reqCtx.Done():
		return nil, errs.New(errs.KindGenerationFailed, "embedding request timed out or was cancelled")
	case r := <-resultCh:
		if r.err != nil {
			return nil, r.err
		}
		if r.resp.Count != len(texts) {
			return nil, errs.New(errs.KindInvalidResponse, "embedding response count does not match request length")
		}
		if r.resp.Dimension != externalDimensions {
			return nil, errs.New(errs.KindInvalidResponse, "embedding response dimension does not match provider dimension")
		}
		return r.resp.Embeddings, nil
	}
}

func (p *ExternalModelProvider) doEmbed(ctx context.Context, body []byte) (*embedResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/embed", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "build embed request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, errs.Wrap(errs.KindGenerationFailed, err, "call embedding model")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &errs.ServerError{Code: resp.StatusCode, Message: "embed request failed"}
	}

	var decoded embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, errs.Wrap(errs.KindInvalidResponse, err, "decode embedding model response")
	}
	return &decoded, nil
}
