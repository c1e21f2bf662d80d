// Package discussion orchestrates multi-agent panel discussions: a fixed
// roster of agents takes turns over a number of rounds, each agent seeing
// the question and every prior contribution reframed as an alternating
// conversation, with an optional synthesized summary at the end. The run is
// resilient: a failing or silent agent is skipped and the discussion
// continues.
package discussion
