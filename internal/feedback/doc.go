// Package feedback implements the feedback view model's pure pipeline.
//
// Fetcher merges the store's aggregate item view with the viewer's own votes, Rank orders
// the merged items, Chart derives the top-voted bars, Mutator applies create/change/retract
// vote operations and Submitter validates and creates items. Nothing here holds view state;
// live refresh is owned by the app package.
package feedback
