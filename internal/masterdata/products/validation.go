package products

import (
	"fmt"
	"strings"

	"github.com/austral-pos/austral-pos/internal/masterdata/shared"
)

func (s *Service) validate(p Product) error {
	if strings.TrimSpace(p.Code) == "" {
		return fmt.Errorf("%w: code", shared.ErrRequiredField)
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name", shared.ErrRequiredField)
	}
	if p.Price.IsNegative() {
		return fmt.Errorf("%w: price must be >= 0", shared.ErrValidation)
	}
	return nil
}
