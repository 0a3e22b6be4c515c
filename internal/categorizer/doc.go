// Package categorizer defines the core types, interfaces, and error taxonomy
// shared by the domain categorization pipeline: the extractor, the category
// validator, the result sink, and the orchestrator that wires them together.
package categorizer
