// Package grouping assembles parsed chapter recordings into validated merge
// jobs.
//
// Clustering is by group id alone; every cluster must form the contiguous
// chapter range 1..N and be homogeneous in extension and camera prefix.
// Violations are reported per group and never abort the assembly of other
// groups.
package grouping
