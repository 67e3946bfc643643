package container

import (
	"fmt"

	"go.uber.org/zap"
)

type contextualDef struct {
	kind Kind
	def  any
}

// ContextualBuilder implements the fluent contextual binding API.
//
//	// when Make builds a ReportJob, its Storage parameter gets an S3 store
//	c.When(container.NameOf[*ReportJob]()).
//	    Needs(container.NameOf[Storage]()).
//	    Give(func() *S3Storage { return NewS3Storage(bucket) })
type ContextualBuilder struct {
	container *Container
	target    string
	needs     string
}

// When starts a contextual binding for the catalog type target.
func (c *Container) When(target string) *ContextualBuilder {
	return &ContextualBuilder{container: c, target: Normalize(target)}
}

// Needs names the parameter type the binding applies to.
func (b *ContextualBuilder) Needs(abstract string) *ContextualBuilder {
	b.needs = Normalize(abstract)
	return b
}

// Give sets the definition used for the parameter. It accepts everything
// Register accepts and is materialized on every Make, never shared.
func (b *ContextualBuilder) Give(definition any) error {
	if definition == nil || b.needs == "" {
		return &InvalidDefinitionError{Got: fmt.Sprintf("%T for %s needs %q", definition, b.target, b.needs)}
	}
	kind, _ := classify(definition)

	c := b.container
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.contextual[b.target]; !ok {
		c.contextual[b.target] = make(map[string]contextualDef)
	}
	c.contextual[b.target][b.needs] = contextualDef{kind: kind, def: definition}
	c.logger.Debug("contextual binding registered", zap.String("target", b.target), zap.String("needs", b.needs))
	return nil
}

// contextualFor returns the binding for target's parameter, matched by its
// declared key first and then by its alias-resolved key.
func (c *Container) contextualFor(target, declared, resolved string) (contextualDef, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.contextual[target]
	if !ok {
		return contextualDef{}, false
	}
	if def, ok := m[declared]; ok {
		return def, true
	}
	def, ok := m[resolved]
	return def, ok
}
