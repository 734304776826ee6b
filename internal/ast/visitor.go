package ast

// Visitor is implemented by tree walkers such as the compiler.
type Visitor interface {
	VisitProgram(node *Program)

	// Statements
	VisitExpressionStatement(node *ExpressionStatement)
	VisitLetStatement(node *LetStatement)
	VisitFunctionStatement(node *FunctionStatement)
	VisitReturnStatement(node *ReturnStatement)
	VisitBlockStatement(node *BlockStatement)
	VisitIfStatement(node *IfStatement)
	VisitWhileStatement(node *WhileStatement)
	VisitForStatement(node *ForStatement)
	VisitBreakStatement(node *BreakStatement)
	VisitContinueStatement(node *ContinueStatement)

	// Expressions
	VisitIdentifier(node *Identifier)
	VisitNumberLiteral(node *NumberLiteral)
	VisitImaginaryLiteral(node *ImaginaryLiteral)
	VisitStringLiteral(node *StringLiteral)
	VisitBooleanLiteral(node *BooleanLiteral)
	VisitUndefinedLiteral(node *UndefinedLiteral)
	VisitMatrixLiteral(node *MatrixLiteral)
	VisitMapLiteral(node *MapLiteral)
	VisitRangeExpression(node *RangeExpression)
	VisitPrefixExpression(node *PrefixExpression)
	VisitInfixExpression(node *InfixExpression)
	VisitPostfixExpression(node *PostfixExpression)
	VisitConditionalExpression(node *ConditionalExpression)
	VisitAssignExpression(node *AssignExpression)
	VisitUpdateExpression(node *UpdateExpression)
	VisitMemberExpression(node *MemberExpression)
	VisitIndexExpression(node *IndexExpression)
	VisitCallExpression(node *CallExpression)
	VisitFunctionLiteral(node *FunctionLiteral)
	VisitAwaitExpression(node *AwaitExpression)
}
