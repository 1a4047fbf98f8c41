// Package models defines the core domain models for tripledger.
//
// # Models
//
//   - Trip: a shared trip with a fixed member roster and an optional budget
//   - Member: one person on a trip's roster
//   - Expense: a manually logged payment with a split strategy
//   - PlannedExpense: a cost estimate projected from the itinerary
//   - Settlement: a payment between members that has actually happened
//   - User: a registered account; its ID doubles as a member ID
//
// # Design Principles
//
// 1. **IDs, not pointers**: relationships use ID strings to avoid cycles
// 2. **Immutable inputs**: the calculator never mutates a model it is given
// 3. **Closed split variants**: SplitStrategy is a sealed interface, so a
//    type switch over EqualSplit, CustomSplit and IndividualSplit is exhaustive
package models
