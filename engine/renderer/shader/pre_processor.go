// pre_processor.go expands WGSL templates with feature defines. Templates use
// //#ifdef NAME / //#else / //#endif blocks so a single template source serves
// every material variant; the expanded text is what the pipeline cache hashes.
package shader

import (
	"fmt"
	"sort"
	"strings"
)

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct{}

// PreProcessor expands a WGSL template for a set of feature defines. The same
// template with the same define set always produces byte-identical output, so
// the resulting code hash is stable across frames.
type PreProcessor interface {
	// Process expands the template: a sorted "// features:" header is
	// prepended and //#ifdef blocks are kept or dropped depending on whether
	// their define is present.
	//
	// Parameters:
	//   - source: the raw WGSL template source
	//   - defines: feature define names active for this variant
	//
	// Returns:
	//   - string: the expanded WGSL source
	//   - error: an error if conditional blocks are unbalanced
	Process(source string, defines []string) (string, error)
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a PreProcessor.
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor instance
func NewPreProcessor() PreProcessor {
	return &preProcessor{}
}

func (p *preProcessor) Process(source string, defines []string) (string, error) {
	active := make(map[string]bool, len(defines))
	for _, d := range defines {
		active[d] = true
	}

	sorted := append([]string(nil), defines...)
	sort.Strings(sorted)

	out := make([]string, 0, strings.Count(source, "\n")+2)
	out = append(out, "// features: "+strings.Join(sorted, " "))

	// emit[i] tracks whether the conditional block at nesting depth i is
	// currently being kept.
	emit := []bool{true}

	for i, line := range strings.Split(source, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "//#ifdef "):
			name := strings.TrimSpace(strings.TrimPrefix(trimmed, "//#ifdef "))
			emit = append(emit, emit[len(emit)-1] && active[name])

		case trimmed == "//#else":
			if len(emit) < 2 {
				return "", fmt.Errorf("line %d: //#else without matching //#ifdef", i+1)
			}
			emit[len(emit)-1] = emit[len(emit)-2] && !emit[len(emit)-1]

		case trimmed == "//#endif":
			if len(emit) < 2 {
				return "", fmt.Errorf("line %d: //#endif without matching //#ifdef", i+1)
			}
			emit = emit[:len(emit)-1]

		default:
			if emit[len(emit)-1] {
				out = append(out, line)
			}
		}
	}

	if len(emit) != 1 {
		return "", fmt.Errorf("unterminated //#ifdef block")
	}
	return strings.Join(out, "\n"), nil
}
