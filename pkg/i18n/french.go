package i18n

func frenchSet() TranslationSet {
	return TranslationSet{
		InvalidRegistryFile:    "fichier de registre invalide",
		OutputConflict:         "deux commandes déclarent la même sortie",
		CyclicDependency:       "dépendance cyclique détectée",
		MissingFunction:        "fonction référencée introuvable",
		RejectedUnserializable: "valeur non sérialisable dans le registre",
		UnexpectedFuture:       "valeur future utilisée avant sa résolution",
		CommandFailed:          "la commande s'est terminée en erreur",
		MissingOutput:          "la sortie déclarée n'a pas été produite",
		ModuleLookupFailed:     "le module du greffon n'a pas pu être chargé",

		PendingStatus:  "en attente",
		RunningStatus:  "en cours",
		DoneStatus:     "terminé",
		FailedStatus:   "échoué",
		BuildSucceeded: "construction réussie",
		BuildFailed:    "construction échouée",
		DryRunNotice:   "simulation, aucune commande n'a été exécutée",
	}
}
