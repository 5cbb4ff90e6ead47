// Package retrieval answers policy questions from stored documents.
//
// Retrieval is an ordered cascade of strategies. The semantic strategy ranks
// documents that carry a stored embedding by cosine similarity to the query
// embedding. The keyword strategy matches query terms against title and body.
// When neither yields a document the orchestrator answers with a fixed
// fallback sentence, so a non-empty query always gets a non-empty answer.
package retrieval
