// Package inference wraps the asynchronous visual-query API the pipeline
// submits frames to.
//
// The service answers a registered yes/no question (a detector) for each
// submitted image. Predictions refine over time as repredictions and human
// labels arrive, so a freshly submitted query usually carries a low-confidence
// result: callers treat anything below the detector threshold as pending and
// refresh the query on a later pass. Network and HTTP failures surface as
// *APIError, which is never conflated with a pending result.
package inference
