// Package client builds Kubernetes clients for the cluster command group.
//
// Configuration is discovered automatically from the KUBECONFIG environment
// variable, ~/.kube/config, or the in-cluster service account, in that
// order. Get caches a singleton clientset; Build bypasses the cache for
// explicit kubeconfig paths.
package client
