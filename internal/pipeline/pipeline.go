package pipeline

// Pipeline runs the front-end stages of one compilation unit in order
type Pipeline struct {
	stages []Processor
}

func New(stages ...Processor) *Pipeline {
	return &Pipeline{stages: stages}
}

// Run passes ctx through every stage. A stage that adds diagnostics ends
// the run; later stages would only see a broken tree.
func (p *Pipeline) Run(ctx *PipelineContext) *PipelineContext {
	for _, stage := range p.stages {
		before := len(ctx.Errors)
		ctx = stage.Process(ctx)
		if len(ctx.Errors) > before {
			break
		}
	}
	return ctx
}
