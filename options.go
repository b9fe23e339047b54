package lfas

import "log/slog"

// Option configures an AddressEngine at Open time.
type Option func(*engineConfig)

type engineConfig struct {
	batchSize    int
	k1           float32
	fieldWeights map[RecordField]float32
	fieldB       map[RecordField]float32
	logger       *slog.Logger
}

// defaultAddressEngineBatchSize is Open's own default write-buffer size,
// distinct from the on-disk backend's lower internal default
// (storage_badger.go's DefaultBatchSize) used when a caller opens a
// BadgerStorage directly without going through AddressEngine.
const defaultAddressEngineBatchSize = 1_000_000

func defaultEngineConfig() *engineConfig {
	return &engineConfig{
		batchSize:    defaultAddressEngineBatchSize,
		k1:           DefaultK1,
		fieldWeights: make(map[RecordField]float32),
		fieldB:       make(map[RecordField]float32),
		logger:       slog.Default(),
	}
}

// WithBatchSize overrides the on-disk storage backend's write-buffer size.
func WithBatchSize(n int) Option {
	return func(c *engineConfig) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

// WithBM25Params overrides the scorer's k1 saturation parameter.
func WithBM25Params(k1 float32) Option {
	return func(c *engineConfig) {
		c.k1 = k1
	}
}

// WithFieldWeight sets field's BM25F weight, applied before the k1
// saturation nonlinearity.
func WithFieldWeight(field RecordField, weight float32) Option {
	return func(c *engineConfig) {
		c.fieldWeights[field] = weight
	}
}

// WithFieldB sets field's length-normalization parameter b.
func WithFieldB(field RecordField, b float32) Option {
	return func(c *engineConfig) {
		c.fieldB[field] = b
	}
}

// WithLogger overrides the engine's structured logger, default slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *engineConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}
