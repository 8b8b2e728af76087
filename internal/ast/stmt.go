package ast

import "tfemit/internal/source"

// StmtKind enumerates statement kinds.
type StmtKind uint8

const (
	// StmtExpr evaluates an expression for its side effects.
	StmtExpr StmtKind = iota
	// StmtReturn leaves the function.
	StmtReturn
	// StmtBreak leaves the Level-th enclosing loop or switch.
	StmtBreak
	// StmtContinue resumes the Level-th enclosing loop.
	StmtContinue
	// StmtGoto jumps to a named label.
	StmtGoto
	// StmtLabel defines a named label.
	StmtLabel
	// StmtIf is a two-way branch.
	StmtIf
	// StmtWhile is a pre-tested loop.
	StmtWhile
	// StmtForeach iterates a collection with a loop iterator.
	StmtForeach
	// StmtSwitch dispatches on a subject value.
	StmtSwitch
	// StmtTry is a protected region with a finally block.
	StmtTry
	// StmtUsing is a scoped-resource block disposed on every exit.
	StmtUsing
	// StmtBlock is a nested statement list.
	StmtBlock
)

// String returns a human-readable name for the statement kind.
func (k StmtKind) String() string {
	switch k {
	case StmtExpr:
		return "Expr"
	case StmtReturn:
		return "Return"
	case StmtBreak:
		return "Break"
	case StmtContinue:
		return "Continue"
	case StmtGoto:
		return "Goto"
	case StmtLabel:
		return "Label"
	case StmtIf:
		return "If"
	case StmtWhile:
		return "While"
	case StmtForeach:
		return "Foreach"
	case StmtSwitch:
		return "Switch"
	case StmtTry:
		return "Try"
	case StmtUsing:
		return "Using"
	case StmtBlock:
		return "Block"
	default:
		return "Unknown"
	}
}

// Stmt is one statement.
type Stmt struct {
	Kind StmtKind
	Pos  source.Pos
	Data StmtData // Kind-specific payload
}

// StmtData is the interface for statement-specific data.
type StmtData interface {
	stmtData()
}

// ExprStmtData holds data for StmtExpr.
type ExprStmtData struct {
	Expr *Expr
}

func (ExprStmtData) stmtData() {}

// ReturnData holds data for StmtReturn.
type ReturnData struct {
	Value *Expr // nil for bare return
}

func (ReturnData) stmtData() {}

// JumpData holds data for StmtBreak and StmtContinue.
type JumpData struct {
	Level int // 1 for the innermost loop or switch
}

func (JumpData) stmtData() {}

// GotoData holds data for StmtGoto and StmtLabel.
type GotoData struct {
	Label string
}

func (GotoData) stmtData() {}

// IfData holds data for StmtIf.
type IfData struct {
	Cond *Expr
	Then []Stmt
	Else []Stmt
}

func (IfData) stmtData() {}

// WhileData holds data for StmtWhile.
type WhileData struct {
	Cond *Expr
	Body []Stmt
}

func (WhileData) stmtData() {}

// ForeachData holds data for StmtForeach.
type ForeachData struct {
	Collection *Expr
	Value      string // loop variable name
	Body       []Stmt
}

func (ForeachData) stmtData() {}

// Case is one arm of a switch. A nil Value marks the default arm.
type Case struct {
	Pos   source.Pos
	Value *Expr
	Body  []Stmt
}

// SwitchData holds data for StmtSwitch.
type SwitchData struct {
	Subject *Expr
	Cases   []Case
}

func (SwitchData) stmtData() {}

// TryData holds data for StmtTry.
type TryData struct {
	Body    []Stmt
	Finally []Stmt
}

func (TryData) stmtData() {}

// UsingData holds data for StmtUsing.
type UsingData struct {
	Resource *Expr
	Body     []Stmt
}

func (UsingData) stmtData() {}

// BlockData holds data for StmtBlock.
type BlockData struct {
	Body []Stmt
}

func (BlockData) stmtData() {}
