// Package vm implements the bytecode compiler and the stack machine for Numen
package vm

// Opcode represents a single VM instruction
type Opcode byte

const (
	// Stack manipulation
	OP_CONST Opcode = iota // Push embedded constant
	OP_POP                 // Discard top of stack

	// Variables
	OP_LOAD    // Push variable by name; missing names read as undefined
	OP_STORE   // Rebind nearest existing name (or create innermost), keep value
	OP_DECLARE // Bind new name in innermost scope, keep value

	// Containers
	OP_GET_MEMBER    // [name, obj] -> [obj.name]
	OP_SET_MEMBER    // [value, name, obj] -> [value]
	OP_GET_INDEX     // [idxN..idx1, obj] -> [obj[idx1..idxN]]
	OP_SET_INDEX     // [value, idxN..idx1, obj] -> [value]
	OP_NEW_MATRIX    // Push empty matrix accumulator (N rows, M cols)
	OP_INIT_CELL     // [matrix, v] -> [matrix] with cell (N, M) set
	OP_NEW_OBJECT    // Push empty map accumulator
	OP_INIT_PROPERTY // [map, v] -> [map] with Name set
	OP_RANGE         // [from, to, step?] -> [row vector]

	// Expressions
	OP_CALL      // [argN..arg1, callee] -> [result]
	OP_SELECT    // [secondary, primary, cond] -> [branch]
	OP_INCREMENT // Read-modify-write of an assignment target, push old or new
	OP_AWAIT     // [future] -> [result], may suspend the context

	// Functions
	OP_CLOSURE // Push closure over the current scope
	OP_PARAM   // Bind argument N to Name
	OP_REST    // Bind arguments N.. to Name as an index-keyed map
	OP_RETURN  // Halt; the value on top of the stack is the result

	// Control flow
	OP_JUMP          // pc = N
	OP_JUMP_IF_FALSE // Pop condition, pc = N when falsy
	OP_ITER          // Pop iterable, push iterator on the iterator stack
	OP_ITER_NEXT     // Bind next element to Name or jump to N when exhausted
	OP_ITER_END      // Drop the innermost iterator
)

// OpcodeNames maps opcodes to their string names (for debugging)
var OpcodeNames = map[Opcode]string{
	OP_CONST:         "CONST",
	OP_POP:           "POP",
	OP_LOAD:          "LOAD",
	OP_STORE:         "STORE",
	OP_DECLARE:       "DECLARE",
	OP_GET_MEMBER:    "GET_MEMBER",
	OP_SET_MEMBER:    "SET_MEMBER",
	OP_GET_INDEX:     "GET_INDEX",
	OP_SET_INDEX:     "SET_INDEX",
	OP_NEW_MATRIX:    "NEW_MATRIX",
	OP_INIT_CELL:     "INIT_CELL",
	OP_NEW_OBJECT:    "NEW_OBJECT",
	OP_INIT_PROPERTY: "INIT_PROPERTY",
	OP_RANGE:         "RANGE",
	OP_CALL:          "CALL",
	OP_SELECT:        "SELECT",
	OP_INCREMENT:     "INCREMENT",
	OP_AWAIT:         "AWAIT",
	OP_CLOSURE:       "CLOSURE",
	OP_PARAM:         "PARAM",
	OP_REST:          "REST",
	OP_RETURN:        "RETURN",
	OP_JUMP:          "JUMP",
	OP_JUMP_IF_FALSE: "JUMP_IF_FALSE",
	OP_ITER:          "ITER",
	OP_ITER_NEXT:     "ITER_NEXT",
	OP_ITER_END:      "ITER_END",
}

func (op Opcode) String() string {
	if name, ok := OpcodeNames[op]; ok {
		return name
	}
	return "UNKNOWN"
}

// Target says where OP_INCREMENT stores its result
type Target uint8

const (
	TargetName Target = iota
	TargetMember
	TargetIndex
)
