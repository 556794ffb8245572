package hcl

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// fileRoot decodes every top-level block a definition file may contain.
type fileRoot struct {
	Pipelines  []*pipelineBlock  `hcl:"pipeline,block"`
	Components []*componentBlock `hcl:"component,block"`
	Tasks      []*taskBlock      `hcl:"task,block"`
}

type pipelineBlock struct {
	Name        string `hcl:"name,label"`
	Description string `hcl:"description,optional"`
}

type componentBlock struct {
	Name        string         `hcl:"name,label"`
	Handler     string         `hcl:"handler,optional"`
	Description string         `hcl:"description,optional"`
	Inputs      []*inputBlock  `hcl:"input,block"`
	Outputs     []*outputBlock `hcl:"output,block"`
}

// inputBlock's type is either a quoted artifact tag or a literal type
// expression such as list(string).
type inputBlock struct {
	Name        string         `hcl:"name,label"`
	Kind        string         `hcl:"kind,optional"`
	Type        hcl.Expression `hcl:"type"`
	Description string         `hcl:"description,optional"`
	Default     *cty.Value     `hcl:"default,optional"`
}

type outputBlock struct {
	Name        string `hcl:"name,label"`
	Type        string `hcl:"type"`
	Description string `hcl:"description,optional"`
}

type taskBlock struct {
	Component string          `hcl:"component,label"`
	ID        string          `hcl:"id,label"`
	Arguments *argumentsBlock `hcl:"arguments,block"`
}

type argumentsBlock struct {
	Body hcl.Body `hcl:",remain"`
}
