package rules

import (
	"fmt"
	"os"

	lua "github.com/yuin/gopher-lua"

	"github.com/mpataki/agentprobe/internal/agentscript"
)

const (
	topicFn  = "topic_utterance"
	actionFn = "action_utterance"
)

// RuleSet executes a Lua rules script in a sandboxed environment and
// implements synth.Overrides. The script may define
// topic_utterance(topic) and action_utterance(action, topic), each
// returning a replacement utterance string or nil to fall through to
// the built-in tables. A RuleSet is not safe for concurrent use.
type RuleSet struct {
	state *lua.LState
	logs  []string
}

// Load reads and compiles a rules script. The script must define at
// least one of the two rule functions.
func Load(path string) (*RuleSet, error) {
	script, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules script: %w", err)
	}

	L := lua.NewState(lua.Options{
		SkipOpenLibs: true,
	})
	openSafeLibs(L)

	if err := L.DoString(string(script)); err != nil {
		L.Close()
		return nil, fmt.Errorf("failed to load rules script: %w", err)
	}

	if L.GetGlobal(topicFn) == lua.LNil && L.GetGlobal(actionFn) == lua.LNil {
		L.Close()
		return nil, fmt.Errorf("rules script must define a '%s' or '%s' function", topicFn, actionFn)
	}

	return &RuleSet{state: L}, nil
}

// Close releases the underlying interpreter.
func (r *RuleSet) Close() {
	r.state.Close()
}

// Logs returns warnings collected while evaluating rules, one per
// failed rule call.
func (r *RuleSet) Logs() []string {
	return r.logs
}

// TopicUtterance asks the script for a custom routing utterance.
func (r *RuleSet) TopicUtterance(t *agentscript.Topic) (string, bool) {
	return r.call(topicFn, topicToTable(r.state, t))
}

// ActionUtterance asks the script for a custom invocation utterance.
func (r *RuleSet) ActionUtterance(a *agentscript.Action, t *agentscript.Topic) (string, bool) {
	return r.call(actionFn, actionToTable(r.state, a), topicToTable(r.state, t))
}

// call invokes one rule function. Anything other than a clean string
// return declines the override: nil returns, missing functions and
// runtime errors all fall through to the built-in tables.
func (r *RuleSet) call(name string, args ...lua.LValue) (string, bool) {
	L := r.state
	fn := L.GetGlobal(name)
	if fn == lua.LNil {
		return "", false
	}

	L.Push(fn)
	for _, arg := range args {
		L.Push(arg)
	}
	if err := L.PCall(len(args), 1, nil); err != nil {
		r.logs = append(r.logs, fmt.Sprintf("rule %s failed: %v", name, err))
		return "", false
	}

	ret := L.Get(-1)
	L.Pop(1)
	if s, ok := ret.(lua.LString); ok {
		return string(s), true
	}
	return "", false
}

// openSafeLibs loads only the deterministic standard libraries.
func openSafeLibs(L *lua.LState) {
	lua.OpenBase(L)

	// Remove base functions that reach the host environment.
	L.SetGlobal("loadfile", lua.LNil)
	L.SetGlobal("dofile", lua.LNil)
	L.SetGlobal("load", lua.LNil)
	L.SetGlobal("loadstring", lua.LNil)
	L.SetGlobal("print", lua.LNil)

	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	// The Open* functions leave their module tables on the stack.
	L.SetTop(0)

	// Random utterances would break reproducible spec generation.
	math := L.GetGlobal("math")
	if tbl, ok := math.(*lua.LTable); ok {
		L.SetField(tbl, "random", lua.LNil)
		L.SetField(tbl, "randomseed", lua.LNil)
	}
}

func topicToTable(L *lua.LState, t *agentscript.Topic) *lua.LTable {
	tbl := L.NewTable()
	L.SetField(tbl, "name", lua.LString(t.Name))
	L.SetField(tbl, "label", lua.LString(t.Label))
	L.SetField(tbl, "description", lua.LString(t.Description))
	L.SetField(tbl, "is_start", lua.LBool(t.IsStart))
	return tbl
}

func actionToTable(L *lua.LState, a *agentscript.Action) *lua.LTable {
	tbl := L.NewTable()
	L.SetField(tbl, "name", lua.LString(a.Name))
	L.SetField(tbl, "description", lua.LString(a.Description))
	L.SetField(tbl, "target", lua.LString(a.Target))
	return tbl
}
