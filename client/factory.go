package client

// ProviderFactory creates transcript providers. Callers ask for a new
// provider per video so cookies and connections never carry over.
type ProviderFactory interface {
	// NewProvider creates a provider with fresh state
	NewProvider() TranscriptProvider
}

// DefaultProviderFactory implements ProviderFactory
type DefaultProviderFactory struct {
	config TranscriptClientConfig
}

// NewDefaultProviderFactory creates a new DefaultProviderFactory
func NewDefaultProviderFactory(config TranscriptClientConfig) *DefaultProviderFactory {
	return &DefaultProviderFactory{config: config}
}

// NewProvider implements ProviderFactory
func (f *DefaultProviderFactory) NewProvider() TranscriptProvider {
	return NewTranscriptClient(f.config)
}
