// Package equation holds the velocity-level constraint rows solved by the
// solver package.
//
// Every row is a [Row] embedded in a concrete kind that knows how to fill
// its Jacobian and right-hand side:
//
//	Contact          non-penetration along a contact normal
//	Friction         tangential slip bounded by a slip force
//	Rotational       keeps two body axes within a maximum angle
//	Cone             keeps two body axes within a cone half angle
//	RotationalMotor  drives the relative spin about an axis
//
// Rows are regularised with SPOOK parameters (stiffness, relaxation, step).
//
// # Thread Safety
//
// Rows read and write body solve caches (Vlambda, Wlambda). A row and the
// bodies it references must only be used from one goroutine at a time.
package equation
