package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve index mapping for summary documents.
//
// Text fields use the English analyzer so "crashing" finds "crashes".
// Factors are stored for display; the summary body is not.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	// --- Text fields ---

	nameFieldMapping := bleve.NewTextFieldMapping()
	nameFieldMapping.Analyzer = en.AnalyzerName
	nameFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("name", nameFieldMapping)

	summaryFieldMapping := bleve.NewTextFieldMapping()
	summaryFieldMapping.Analyzer = en.AnalyzerName
	summaryFieldMapping.Store = true
	summaryFieldMapping.IncludeTermVectors = true // For highlighting
	docMapping.AddFieldMappingsAt("summary", summaryFieldMapping)

	positiveFieldMapping := bleve.NewTextFieldMapping()
	positiveFieldMapping.Analyzer = en.AnalyzerName
	positiveFieldMapping.Store = true
	positiveFieldMapping.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt("positive_factors", positiveFieldMapping)

	negativeFieldMapping := bleve.NewTextFieldMapping()
	negativeFieldMapping.Analyzer = en.AnalyzerName
	negativeFieldMapping.Store = true
	negativeFieldMapping.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt("negative_factors", negativeFieldMapping)

	// --- Keyword fields ---

	idFieldMapping := bleve.NewTextFieldMapping()
	idFieldMapping.Analyzer = keyword.Name
	idFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("appid", idFieldMapping)

	bugFieldMapping := bleve.NewBooleanFieldMapping()
	bugFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("bug_flag", bugFieldMapping)

	// --- Numeric fields (range queries, sorting) ---

	scoreFieldMapping := bleve.NewNumericFieldMapping()
	scoreFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("score", scoreFieldMapping)

	totalFieldMapping := bleve.NewNumericFieldMapping()
	totalFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("total_reviews", totalFieldMapping)

	dateFieldMapping := bleve.NewNumericFieldMapping()
	dateFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("summary_date", dateFieldMapping)

	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}
