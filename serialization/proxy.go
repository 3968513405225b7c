package serialization

// ParseNodeProxyFactory decorates a ParseNodeFactory so that every root node
// it creates carries the given before/after assignment hooks.
type ParseNodeProxyFactory struct {
	concrete ParseNodeFactory
	onBefore ParsableAction
	onAfter  ParsableAction
}

// NewParseNodeProxyFactory wraps concrete with the given hooks.
func NewParseNodeProxyFactory(concrete ParseNodeFactory, onBefore, onAfter ParsableAction) *ParseNodeProxyFactory {
	return &ParseNodeProxyFactory{concrete: concrete, onBefore: onBefore, onAfter: onAfter}
}

// GetValidContentType delegates to the wrapped factory.
func (p *ParseNodeProxyFactory) GetValidContentType() (string, error) {
	return p.concrete.GetValidContentType()
}

// GetRootParseNode creates the node and chains the hooks ahead of any the
// node already had.
func (p *ParseNodeProxyFactory) GetRootParseNode(contentType string, content []byte) (ParseNode, error) {
	node, err := p.concrete.GetRootParseNode(contentType, content)
	if err != nil {
		return nil, err
	}
	originalBefore := node.GetOnBeforeAssignFieldValues()
	if err := node.SetOnBeforeAssignFieldValues(chainActions(p.onBefore, originalBefore)); err != nil {
		return nil, err
	}
	originalAfter := node.GetOnAfterAssignFieldValues()
	if err := node.SetOnAfterAssignFieldValues(chainActions(p.onAfter, originalAfter)); err != nil {
		return nil, err
	}
	return node, nil
}

// SerializationWriterProxyFactory decorates a SerializationWriterFactory so
// that every writer it creates carries the given hooks.
type SerializationWriterProxyFactory struct {
	concrete SerializationWriterFactory
	onBefore ParsableAction
	onAfter  ParsableAction
	onStart  ParsableWriter
}

// NewSerializationWriterProxyFactory wraps concrete with the given hooks.
func NewSerializationWriterProxyFactory(concrete SerializationWriterFactory, onBefore, onAfter ParsableAction, onStart ParsableWriter) *SerializationWriterProxyFactory {
	return &SerializationWriterProxyFactory{concrete: concrete, onBefore: onBefore, onAfter: onAfter, onStart: onStart}
}

// GetValidContentType delegates to the wrapped factory.
func (p *SerializationWriterProxyFactory) GetValidContentType() (string, error) {
	return p.concrete.GetValidContentType()
}

// GetSerializationWriter creates the writer and chains the hooks ahead of any
// the writer already had.
func (p *SerializationWriterProxyFactory) GetSerializationWriter(contentType string) (SerializationWriter, error) {
	writer, err := p.concrete.GetSerializationWriter(contentType)
	if err != nil {
		return nil, err
	}
	originalBefore := writer.GetOnBeforeSerialization()
	if err := writer.SetOnBeforeSerialization(chainActions(p.onBefore, originalBefore)); err != nil {
		return nil, err
	}
	originalAfter := writer.GetOnAfterObjectSerialization()
	if err := writer.SetOnAfterObjectSerialization(chainActions(p.onAfter, originalAfter)); err != nil {
		return nil, err
	}
	originalStart := writer.GetOnStartObjectSerialization()
	start := p.onStart
	if err := writer.SetOnStartObjectSerialization(func(item Parsable, w SerializationWriter) error {
		if start != nil {
			if err := start(item, w); err != nil {
				return err
			}
		}
		if originalStart != nil {
			return originalStart(item, w)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return writer, nil
}

func chainActions(first, second ParsableAction) ParsableAction {
	return func(item Parsable) error {
		if first != nil {
			if err := first(item); err != nil {
				return err
			}
		}
		if second != nil {
			return second(item)
		}
		return nil
	}
}
