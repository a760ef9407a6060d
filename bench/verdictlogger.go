package bench

import (
	"log"

	"github.com/sarchlab/verikit/sim/hooking"
	"github.com/sarchlab/verikit/txn"
)

// VerdictLogger is a hook that prints every verdict.
type VerdictLogger struct {
	logger *log.Logger
}

// NewVerdictLogger creates a VerdictLogger that writes to logger.
func NewVerdictLogger(logger *log.Logger) *VerdictLogger {
	return &VerdictLogger{logger: logger}
}

// Func prints the verdict.
func (h *VerdictLogger) Func(ctx hooking.HookCtx) {
	if ctx.Pos != HookPosVerdict {
		return
	}

	v, ok := ctx.Item.(txn.Verdict)
	if !ok {
		return
	}

	switch v.Outcome {
	case txn.Pass, txn.Fail:
		h.logger.Printf("[SCO] : %s %d", v.Note, v.Actual)
	case txn.Desync:
		h.logger.Printf("[SCO] : DESYNC %s: %v", v.Note, v.Err)
	default:
		h.logger.Printf("[SCO] : ERROR from %s: %v", v.Note, v.Err)
	}

	h.logger.Print("-------------------------------------------")
}
