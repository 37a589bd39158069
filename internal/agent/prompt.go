package agent

import (
	"fmt"
	"strings"
)

// SystemPrompt builds the system message from the persona and tool names.
func SystemPrompt(name, role string, instructions []string, tools []Tool) string {
	var b strings.Builder
	if name != "" {
		fmt.Fprintf(&b, "Você é %s.", name)
	}
	if role != "" {
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		fmt.Fprintf(&b, "Seu papel: %s.", role)
	}
	b.WriteString(" Responda em português, usando markdown.")

	if len(instructions) > 0 {
		b.WriteString("\n\nInstruções:\n")
		for i, inst := range instructions {
			fmt.Fprintf(&b, "%d. %s\n", i+1, inst)
		}
	}

	for _, t := range tools {
		if t.Name() == (ThinkTool{}).Name() {
			b.WriteString("\nUse a ferramenta think para registrar seu raciocínio antes de responder, " +
				"informando title, thought e confidence (0 a 1).\n")
			break
		}
	}
	return strings.TrimSpace(b.String())
}
