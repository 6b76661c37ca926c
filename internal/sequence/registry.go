package sequence

import "fmt"

// Factory는 설정으로부터 수열 인스턴스를 생성하는 함수입니다
type Factory func(cfg Config) (Sequence, error)

// Registry는 사용 가능한 모든 수열 정책을 등록하고 관리합니다
type Registry struct {
	policies map[string]Factory
}

// NewRegistry는 새로운 수열 레지스트리를 생성합니다
func NewRegistry() *Registry {
	return &Registry{
		policies: make(map[string]Factory),
	}
}

// Register는 새로운 수열 팩토리를 레지스트리에 등록합니다
func (r *Registry) Register(name string, factory Factory) {
	r.policies[name] = factory
}

// Create는 주어진 이름과 설정으로 수열 인스턴스를 생성합니다
func (r *Registry) Create(name string, cfg Config) (Sequence, error) {
	factory, exists := r.policies[name]
	if !exists {
		return nil, fmt.Errorf("존재하지 않는 수열 정책: %s", name)
	}
	if cfg.Rules == nil {
		return nil, fmt.Errorf("수열 생성에 심볼 제약 정보가 필요합니다")
	}
	return factory(cfg)
}

// ListPolicies는 사용 가능한 모든 정책 이름을 반환합니다
func (r *Registry) ListPolicies() []string {
	var names []string
	for name := range r.policies {
		names = append(names, name)
	}
	return names
}

// DefaultRegistry는 기본 제공 정책이 모두 등록된 레지스트리를 생성합니다
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.Register("formula25", func(cfg Config) (Sequence, error) {
		if cfg.Multiplier <= 0 {
			return nil, fmt.Errorf("formula25 정책에는 양수 배수가 필요합니다 (현재: %v)", cfg.Multiplier)
		}
		return newFormula25(cfg), nil
	})

	r.Register("ascending", func(cfg Config) (Sequence, error) {
		return newArithmetic(cfg, variantAscending, "ascending"), nil
	})
	r.Register("even", func(cfg Config) (Sequence, error) {
		return newArithmetic(cfg, variantEven, "even"), nil
	})
	r.Register("odd", func(cfg Config) (Sequence, error) {
		return newArithmetic(cfg, variantOdd, "odd"), nil
	})
	r.Register("mega", func(cfg Config) (Sequence, error) {
		return newArithmetic(cfg, variantMega, "mega"), nil
	})

	r.Register("pattern", func(cfg Config) (Sequence, error) {
		if cfg.FixedTarget <= 0 {
			return nil, fmt.Errorf("pattern 정책에는 양수 고정 목표가 필요합니다 (현재: %v)", cfg.FixedTarget)
		}
		return newPattern(cfg), nil
	})

	return r
}
