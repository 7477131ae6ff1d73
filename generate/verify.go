package generate

import (
	"go.uber.org/zap"

	"bidic/css"
)

// verifyOutput parses an emitted stylesheet and reports structural problems.
// Diagnostics are advisory, the artifact is never modified and generation
// never fails because of them.
func verifyOutput(data []byte, outputName string, log *zap.Logger) {
	sheet := css.NewParser(log).Parse(data, outputName)
	for _, w := range sheet.Warnings {
		log.Warn("Problem in generated stylesheet", zap.String("file", outputName), zap.String("problem", w))
	}
}
