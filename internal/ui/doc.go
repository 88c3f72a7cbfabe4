// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The screen follows the controller's display mode:
//  1. Empty : a path field that doubles as the drop target
//  2. HasFileNoResult : file details and the local preview reference
//  3. Submitting : spinner and upload progress bar
//  4. HasResult : before/after slider with absolute result URLs
//
// Dropping a file onto most terminals pastes its path. The path field is the
// only component that reacts to pastes, and a paste loads the file at once.
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Upload progress flows through a channel from the controller, so rendering never waits on the network.
//
// Contextual help is displayed via charmbracelet/bubbles/help.
package ui
