// Package hcl loads pipeline definitions written in HCL.
//
// A definition is made of one pipeline block, any number of component blocks
// describing components that are not compiled into the binary, and task
// blocks that instantiate components in source order:
//
//	pipeline "insurance" {
//	  description = "Predicts medical insurance charges."
//	}
//
//	task "extract_data" "extract" {
//	  arguments {
//	    source = "data/insurance.csv"
//	  }
//	}
//
//	task "preprocess_data" "preprocess" {
//	  arguments {
//	    dataset = task.extract.output.dataset
//	    target  = "charges"
//	  }
//	}
//
// A task.<id>.output.<name> traversal binds an input to an upstream artifact;
// any other expression is evaluated as a literal.
package hcl
