package branches

import (
	"fmt"
	"strings"

	"github.com/austral-pos/austral-pos/internal/masterdata/shared"
)

func (s *Service) validate(b Branch) error {
	if strings.TrimSpace(b.Code) == "" {
		return fmt.Errorf("%w: code", shared.ErrRequiredField)
	}
	if strings.TrimSpace(b.Name) == "" {
		return fmt.Errorf("%w: name", shared.ErrRequiredField)
	}
	return nil
}
