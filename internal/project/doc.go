// Package project holds the immutable metadata of the gem being bootstrapped.
// A Context is built once from user input plus defaults and then handed to
// every pipeline step by value.
package project
