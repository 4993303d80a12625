// Package processor drives validated merge jobs to completion under a
// bounded worker pool.
//
// Each worker owns one job and one external ffmpeg process at a time. Jobs
// are admitted in input order as workers free up, failures stay isolated to
// their job, and progress events flow to the configured reporter through a
// buffered channel so rendering can never stall a merge.
package processor
