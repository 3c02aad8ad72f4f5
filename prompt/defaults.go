package prompt

// DefaultTemplateName is the template used by document analysis.
const DefaultTemplateName = "analyze_invoice"

// DefaultTemplate is rendered when no active analysis template exists.
const DefaultTemplate = `<|begin_of_text|><|start_header_id|>system<|end_header_id|>

You are an expert in UBL 2.1 electronic invoicing. Explain the problem and how to fix it.
Answer only with JSON containing the keys "reason", "solution" and "criticality".<|eot_id|><|start_header_id|>user<|end_header_id|>

Document: {{ doc_id }} ({{ doc_type }})
Problem: {{ error_text }}

Relevant rules:
{{ context_rules }}<|eot_id|><|start_header_id|>assistant<|end_header_id|>

`

// StopToken ends a Llama 3 assistant turn.
const StopToken = "<|eot_id|>"

// DefaultConfig accompanies DefaultTemplate.
func DefaultConfig() Config {
	return Config{Temperature: Float(0.1), MaxTokens: 512, Stop: []string{StopToken}}
}

// SeedTemplate is installed as the first analysis template of a new store.
const SeedTemplate = `<|begin_of_text|><|start_header_id|>system<|end_header_id|>

You are an auditor of UBL 2.1 electronic invoices. Use the rules below when they apply.
Rules:
{{ context_rules }}

Return valid JSON only, with the keys "reason", "solution" and "criticality" (low, medium or high).<|eot_id|><|start_header_id|>user<|end_header_id|>

Invoice {{ doc_id }} of type {{ doc_type }} needs review: {{ error_text }}<|eot_id|><|start_header_id|>assistant<|end_header_id|>

`

// SeedConfig accompanies SeedTemplate.
func SeedConfig() Config {
	return Config{Temperature: Float(0.2), MaxTokens: 1024, Stop: []string{StopToken}}
}
