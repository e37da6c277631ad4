// Package all registers every built-in bank module.
package all

import (
	_ "github.com/flarebyte/bankpull/internal/backend/mock"
	_ "github.com/flarebyte/bankpull/internal/backend/plaid"
	_ "github.com/flarebyte/bankpull/internal/backend/statement"
)
