package tracers

import (
	"fmt"

	"github.com/colorfulnotion/evm/common"
	"github.com/colorfulnotion/evm/vm"
	"github.com/xlab/treeprint"
)

// CallNode is one frame of a CallTree.
type CallNode struct {
	Kind     vm.CallKind
	From     common.Address
	To       common.Address
	Gas      uint64
	GasUsed  uint64
	Status   vm.Status
	Err      error
	Output   []byte
	Children []*CallNode
	parent   *CallNode
}

// CallTree records the frame structure of an execution.
type CallTree struct {
	vm.NoopInspector
	Root *CallNode
	cur  *CallNode
}

func NewCallTree() *CallTree { return &CallTree{} }

func (t *CallTree) OnFrameEnter(e *vm.FrameEvent) {
	n := &CallNode{Kind: e.Kind, From: e.From, To: e.To, Gas: e.Gas, parent: t.cur}
	if t.cur == nil {
		t.Root = n
	} else {
		t.cur.Children = append(t.cur.Children, n)
	}
	t.cur = n
}

func (t *CallTree) OnFrameExit(e *vm.FrameEvent, r *vm.FrameResult) {
	if t.cur == nil {
		return
	}
	t.cur.GasUsed, t.cur.Status, t.cur.Err = r.GasUsed, r.Status, r.Err
	t.cur.Output = common.CopyBytes(r.Output)
	t.cur = t.cur.parent
}

func (n *CallNode) label() string {
	s := fmt.Sprintf("%s %s -> %s gas=%d used=%d %s", n.Kind, common.ShortAddress(n.From), common.ShortAddress(n.To), n.Gas, n.GasUsed, n.Status)
	if n.Err != nil && n.Status == vm.Errored {
		s += fmt.Sprintf(" (%s)", n.Err)
	}
	return s
}

// ToTree renders n and its children.
func (n *CallNode) ToTree() treeprint.Tree {
	tree := treeprint.New()
	tree.SetValue(n.label())
	n.addChildren(tree)
	return tree
}

func (n *CallNode) addChildren(b treeprint.Tree) {
	for _, c := range n.Children {
		if len(c.Children) == 0 {
			b.AddNode(c.label())
			continue
		}
		c.addChildren(b.AddBranch(c.label()))
	}
}

func (t *CallTree) String() string {
	if t.Root == nil {
		return "(no frames)"
	}
	return t.Root.ToTree().String()
}
