package validator

// Rule is one business check over a subject of type T
type Rule[T any] interface {
	Validate(subject T) error
}

// RuleFunc adapts a function to Rule
type RuleFunc[T any] func(subject T) error

// Validate calls f
func (f RuleFunc[T]) Validate(subject T) error {
	return f(subject)
}

// Chain evaluates rules in order and stops at the first failure
type Chain[T any] struct {
	rules []Rule[T]
}

// NewChain creates a chain from an ordered list of rules
func NewChain[T any](rules ...Rule[T]) *Chain[T] {
	return &Chain[T]{rules: rules}
}

// Add appends a rule to the end of the chain
func (c *Chain[T]) Add(rule Rule[T]) *Chain[T] {
	c.rules = append(c.rules, rule)
	return c
}

// Len returns the number of rules
func (c *Chain[T]) Len() int {
	return len(c.rules)
}

// Validate returns the first rule failure, or nil
func (c *Chain[T]) Validate(subject T) error {
	for _, rule := range c.rules {
		if err := rule.Validate(subject); err != nil {
			return err
		}
	}
	return nil
}
