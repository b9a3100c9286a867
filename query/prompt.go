package query

import (
	"fmt"
	"strings"

	"github.com/poiesic/pedsafe/core"
)

const deconstructionPromptTemplate = `You are a medical query parser. Your task is to extract the core medical concept and any demographic or severity filters from a user's question.

Valid filters are 'serious', 'boys', 'girls', 'toddlers' (age 1-3), and 'teens' (age 13-17). Use only these values: %s.

Return your answer as a single, clean JSON object with two keys: "concept" (string) and "filters" (array of strings, empty when no filter applies). Do not include any preamble or explanation.

For example, for the query 'are there serious skin issues in young boys', you should return: {"concept": "skin issues", "filters": ["serious", "boys"]}

User query: %s`

// buildPrompt embeds the filter vocabulary and the user's question.
func buildPrompt(userQuery string) string {
	return fmt.Sprintf(deconstructionPromptTemplate, strings.Join(core.FilterVocabulary, ", "), userQuery)
}
