package iasys

// Version is the released version of the module.
var Version = "0.1.0"
