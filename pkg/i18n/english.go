package i18n

func englishSet() TranslationSet {
	return TranslationSet{
		InvalidRegistryFile:    "invalid registry file",
		OutputConflict:         "two commands declared the same output",
		CyclicDependency:       "dependency cycle detected",
		MissingFunction:        "referenced function not found",
		RejectedUnserializable: "value could not be serialized into the registry",
		UnexpectedFuture:       "future value used before it was resolved",
		CommandFailed:          "command exited with an error",
		MissingOutput:          "declared output was not produced",
		ModuleLookupFailed:     "plugin module could not be loaded",

		PendingStatus:  "pending",
		RunningStatus:  "running",
		DoneStatus:     "done",
		FailedStatus:   "failed",
		BuildSucceeded: "build succeeded",
		BuildFailed:    "build failed",
		DryRunNotice:   "dry run, no commands were executed",
	}
}
