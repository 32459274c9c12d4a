package clients

import (
	"fmt"
	"strings"

	"github.com/austral-pos/austral-pos/internal/masterdata/shared"
)

func (s *Service) validate(c Client) error {
	if strings.TrimSpace(c.TaxID) == "" {
		return fmt.Errorf("%w: tax_id", shared.ErrRequiredField)
	}
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: name", shared.ErrRequiredField)
	}
	return nil
}
