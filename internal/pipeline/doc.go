// Package pipeline drives an ordered list of scaffolding steps over one
// project. Steps run one at a time in declaration order; the first failure
// stops the run and nothing already done is rolled back. A step may end
// with a version-control checkpoint that stages its paths and commits them.
package pipeline
