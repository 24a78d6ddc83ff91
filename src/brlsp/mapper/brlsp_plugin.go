package mapper

import (
	"fmt"

	brlspplugin "github.com/dart-tools/brlsp/src/brlsp/entity/brlsp-plugin"
)

// PluginInfoToRuntimePrioritizedMethods maps all PluginInfo from running plugins, into a prioritized list of modules to run per method.
func PluginInfoToRuntimePrioritizedMethods(allPluginInfo []brlspplugin.PluginInfo) (brlspplugin.RuntimePrioritizedMethods, error) {
	result := make(brlspplugin.RuntimePrioritizedMethods)
	methodPriorityBuckets := make(map[string]map[brlspplugin.Priority][]*brlspplugin.Methods)

	for _, pluginInfo := range allPluginInfo {
		if err := pluginInfo.Validate(); err != nil {
			return nil, fmt.Errorf("error validating plugin configuration: %w", err)
		}

		for method, priority := range pluginInfo.Priorities {
			if _, ok := methodPriorityBuckets[method]; !ok {
				methodPriorityBuckets[method] = make(map[brlspplugin.Priority][]*brlspplugin.Methods)
			}
			methodPriorityBuckets[method][priority] = append(methodPriorityBuckets[method][priority], pluginInfo.Methods)
		}
	}

	// Flatten the buckets into sync and async lists in execution order.
	for method, buckets := range methodPriorityBuckets {
		lists := brlspplugin.MethodLists{}
		for priority := brlspplugin.PriorityHigh; priority <= brlspplugin.PriorityAsync; priority++ {
			if priority < brlspplugin.PriorityAsync {
				lists.Sync = append(lists.Sync, buckets[priority]...)
			} else {
				lists.Async = append(lists.Async, buckets[priority]...)
			}
		}
		result[method] = lists
	}

	return result, nil
}
