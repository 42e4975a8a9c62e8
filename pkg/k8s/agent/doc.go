// Package agent deploys and manages the ApexData telemetry agent in a
// Kubernetes cluster.
//
// One installation is a fixed resource set: a Namespace, a Secret with the
// base64 basic-auth credentials, a ConfigMap with the endpoint and cluster
// identity, a ServiceAccount with a node-reader ClusterRole, and a DaemonSet
// running the agent image on every matching node.
//
// Deploy is idempotent: resources that already exist are either tolerated
// (Namespace, RBAC) or updated in place (Secret, ConfigMap, DaemonSet) so a
// re-deploy rolls out changed settings. Uninstall removes the set in reverse
// order and tolerates resources that are already gone.
package agent
