package discussion

import (
	"basegraph.app/agora/common/llm"
	"basegraph.app/agora/internal/brain"
	"basegraph.app/agora/internal/model"
)

// BrainWriters builds one Brain per agent from the agent's model identifier.
func BrainWriters(clients llm.ClientFactory, callerOpts []llm.CallerOption, brainOpts ...brain.Option) WriterFactory {
	return func(agent model.AgentIdentity) (ReplyWriter, error) {
		client, err := clients(agent.Model)
		if err != nil {
			return nil, err
		}
		return brain.New(llm.NewCaller(client, callerOpts...), brainOpts...), nil
	}
}
