// Package control is the management-plane facade. It groups typed
// accessors to every resource-lifecycle service and hides provider
// selection behind the factory.
package control
