package translate

import (
	"context"

	"go.uber.org/zap"

	"github.com/veravista/veravista/culture"
)

// SubmitTranslationCorrection hands a correction to the correction store
// in the background and acknowledges immediately. Store failures are
// logged and never reach the caller. Use Wait to drain pending writes.
func (p *Pipeline) SubmitTranslationCorrection(ctx context.Context, original, machineTranslated, corrected string, source, target culture.Language) Acknowledgement {
	ack := Acknowledgement{Success: true, Message: ThanksMessage}
	if p.corrections == nil {
		p.logger.Debug("no correction store configured, dropping correction")
		return ack
	}

	c := Correction{
		Original:          original,
		MachineTranslated: machineTranslated,
		Corrected:         corrected,
		Source:            source,
		Target:            target,
		SubmittedAt:       p.now().UTC(),
	}

	// the write outlives the request that triggered it
	bg := context.WithoutCancel(ctx)

	p.pending.Add(1)
	go func() {
		defer p.pending.Done()
		if err := p.corrections.SaveCorrection(bg, c); err != nil {
			p.logger.Warn("correction not stored",
				zap.String("source", string(source)),
				zap.String("target", string(target)),
				zap.Error(&CorrectionSubmissionError{Err: err}))
			return
		}
		p.logger.Debug("correction stored",
			zap.String("source", string(source)),
			zap.String("target", string(target)))
	}()
	return ack
}

// Wait blocks until all background correction writes have finished.
func (p *Pipeline) Wait() {
	p.pending.Wait()
}
