package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/vimawesome/vimorg-scraper/config"
	"github.com/vimawesome/vimorg-scraper/models"
	"github.com/vimawesome/vimorg-scraper/parser"
)

var (
	// ErrPipelineClosed is returned when Process is called after shutdown.
	ErrPipelineClosed = errors.New("pipeline: closed")
	// ErrPipelineCloseTimeout is returned when workers fail to drain in time.
	ErrPipelineCloseTimeout = errors.New("pipeline: close timed out")
)

// drainTimeout bounds how long Close waits for workers to flush.
var drainTimeout = 30 * time.Second

// OutputWriter defines the interface for data output.
type OutputWriter interface {
	Write(plugins []*models.Plugin) error
	Close() error
	Validate() error
}

// Pipeline coordinates validation, de-duplication, and output writing.
type Pipeline struct {
	ctx       context.Context
	writer    OutputWriter
	pluginCh  chan *models.Plugin
	batchSize int

	wg sync.WaitGroup

	seen *lru.Cache[int, struct{}]

	metrics metrics

	mu     sync.Mutex // guards closed/err
	closed bool
	err    error

	closeOnce    sync.Once
	shutdown     chan struct{}
	shutdownOnce sync.Once
}

// NewPipeline builds a pipeline sized from cfg.
func NewPipeline(ctx context.Context, writer OutputWriter, cfg *config.Config) (*Pipeline, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	seen, err := lru.New[int, struct{}](cfg.DedupeMaxSize)
	if err != nil {
		return nil, fmt.Errorf("dedupe cache: %w", err)
	}

	return &Pipeline{
		ctx:       ctx,
		writer:    writer,
		pluginCh:  make(chan *models.Plugin, cfg.PipelineBufferSize),
		batchSize: cfg.BatchSize,
		seen:      seen,
		metrics:   newMetrics(),
		shutdown:  make(chan struct{}),
	}, nil
}

// Start launches worker goroutines.
func (p *Pipeline) Start(workers int) {
	if workers <= 0 {
		workers = 1
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// Process enqueues plugins for downstream processing.
func (p *Pipeline) Process(plugins ...*models.Plugin) error {
	if len(plugins) == 0 {
		return nil
	}

	closed, err := p.state()
	if err != nil {
		return err
	}
	if closed {
		return ErrPipelineClosed
	}

	for _, plugin := range plugins {
		if plugin == nil {
			continue
		}
		if err := p.enqueue(plugin); err != nil {
			return err
		}
	}
	return nil
}

// Close waits for workers to finish and prevents more submissions.
func (p *Pipeline) Close() error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
	}
	p.mu.Unlock()

	p.signalShutdown()
	p.closeOnce.Do(func() {
		close(p.pluginCh)
	})

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(drainTimeout):
		return ErrPipelineCloseTimeout
	}

	return p.Err()
}

// Err returns the first error encountered during processing.
func (p *Pipeline) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// GetMetrics returns a snapshot of the internal counters.
func (p *Pipeline) GetMetrics() map[string]interface{} {
	return p.metrics.snapshot()
}

// StartMetricsReporting emits periodic progress logs.
func (p *Pipeline) StartMetricsReporting(interval time.Duration) {
	if interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				metrics := p.GetMetrics()
				processed := metrics["processed_plugins"].(int64)
				validation := metrics["validation_errors"].(map[string]int)
				slog.Info("pipeline progress",
					slog.Int64("processed", processed),
					slog.Int("validation_errors", len(validation)),
				)
			case <-p.shutdown:
				return
			case <-p.ctx.Done():
				return
			}
		}
	}()
}

func (p *Pipeline) worker() {
	defer p.wg.Done()

	batch := make([]*models.Plugin, 0, p.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := p.writer.Write(batch); err != nil {
			return err
		}
		batch = batch[:0]
		return nil
	}

	for plugin := range p.pluginCh {
		prepared := p.prepare(plugin)
		if prepared == nil {
			continue
		}
		batch = append(batch, prepared)
		if len(batch) >= p.batchSize {
			if err := flush(); err != nil {
				p.setErr(fmt.Errorf("write batch: %w", err))
				return
			}
		}
	}

	if err := flush(); err != nil {
		p.setErr(fmt.Errorf("write batch: %w", err))
	}
}

func (p *Pipeline) prepare(plugin *models.Plugin) *models.Plugin {
	if err := parser.ValidatePlugin(plugin); err != nil {
		p.metrics.addValidation("invalid_record")
		return nil
	}

	if found, _ := p.seen.ContainsOrAdd(plugin.VimScriptID, struct{}{}); found {
		p.metrics.addValidation("duplicate_script_id")
		return nil
	}

	plugin.Name = parser.NormalizeText(plugin.Name)
	plugin.VimorgType = parser.NormalizeText(plugin.VimorgType)
	plugin.VimorgShortDesc = parser.NormalizeText(plugin.VimorgShortDesc)
	plugin.Author = parser.NormalizeText(plugin.Author)

	p.metrics.incrementProcessed()
	return plugin
}

func (p *Pipeline) enqueue(plugin *models.Plugin) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = ErrPipelineClosed
		}
	}()

	select {
	case <-p.shutdown:
		return ErrPipelineClosed
	case <-p.ctx.Done():
		return ErrPipelineClosed
	case p.pluginCh <- plugin:
		return nil
	}
}

func (p *Pipeline) setErr(err error) {
	if err == nil {
		return
	}

	p.mu.Lock()
	if p.err != nil {
		p.mu.Unlock()
		return
	}
	p.err = err
	p.closed = true
	p.mu.Unlock()

	p.signalShutdown()
	p.closeOnce.Do(func() {
		close(p.pluginCh)
	})
}

func (p *Pipeline) state() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed, p.err
}

func (p *Pipeline) signalShutdown() {
	p.shutdownOnce.Do(func() {
		close(p.shutdown)
	})
}

type metrics struct {
	mu         sync.Mutex
	processed  int64
	validation map[string]int
}

func newMetrics() metrics {
	return metrics{
		validation: make(map[string]int),
	}
}

func (m *metrics) incrementProcessed() {
	m.mu.Lock()
	m.processed++
	m.mu.Unlock()
}

func (m *metrics) addValidation(kind string) {
	m.mu.Lock()
	m.validation[kind]++
	m.mu.Unlock()
}

func (m *metrics) snapshot() map[string]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()

	copyValidation := make(map[string]int, len(m.validation))
	for k, v := range m.validation {
		copyValidation[k] = v
	}

	return map[string]interface{}{
		"processed_plugins": m.processed,
		"validation_errors": copyValidation,
	}
}
