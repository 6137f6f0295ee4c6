// Package healing classifies failure logs and produces targeted repair
// prompts for the debugger agent.
package healing
