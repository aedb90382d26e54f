// Package deck runs the ordered build steps that turn the deck's sources into
// the datasets handed to the rendering layer.
//
// Each Step declares the sources it reads and the earlier steps whose tables it
// consumes. A Runner executes the steps of a Registry top to bottom against a
// BuildState and aborts the build on the first failure. The aviation deck's
// eight steps are assembled by NewAviationDeck.
package deck
