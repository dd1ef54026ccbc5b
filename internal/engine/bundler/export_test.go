package bundler

var Collect = collect
